package notify

import (
	"context"
	"log/slog"

	"github.com/Festivemena/ment/model"
	notificationrepo "github.com/Festivemena/ment/repository/notification"
)

// Emitter is the fire-and-forget side channel invoked after transitions.
// Implementations must never return an error to the caller: a failed
// notification cannot roll back financial state.
type Emitter interface {
	Notify(ctx context.Context, userID int64, kind, title, body string)
}

type Service interface {
	Emitter
	List(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) (bool, error)
	Registry() *Registry
}

type service struct {
	r   notificationrepo.Repo
	reg *Registry
	log *slog.Logger
}

func New(r notificationrepo.Repo, reg *Registry, log *slog.Logger) Service {
	return &service{r: r, reg: reg, log: log}
}

func (s *service) Notify(ctx context.Context, userID int64, kind, title, body string) {
	n := &model.Notification{UserID: userID, Kind: kind, Title: title, Body: body}
	if err := s.r.Insert(ctx, n); err != nil {
		s.log.Error("notification insert failed", "user_id", userID, "kind", kind, "err", err)
		return
	}
	s.reg.Push(userID, n)
}

func (s *service) List(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.r.ListForUser(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, userID, id int64) (bool, error) {
	return s.r.MarkRead(ctx, userID, id)
}

func (s *service) Registry() *Registry { return s.reg }
