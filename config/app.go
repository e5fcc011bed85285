package config

type App struct {
	Port           string `env:"APP_PORT" default:"8080"`
	DatabaseURL    string `env:"DATABASE_URL,required"`
	JWTSecret      string `env:"JWT_SECRET,required"`
	PaystackSecret string `env:"PAYSTACK_SECRET_KEY,required"`
	ReferralReward int64  `env:"REFERRAL_REWARD_AMOUNT" default:"100000"`
	Env            string `env:"APP_ENV" default:"dev"`
}
