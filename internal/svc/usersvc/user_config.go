package usersvc

// UserConfig holds configuration parameters for the user service.
type UserConfig struct {
	// BcryptCost is the work factor used when hashing passwords
	BcryptCost int `env:"BCRYPT_COST" envDefault:"4"`
}
