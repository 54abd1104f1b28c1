package integration_test

const (
	dbName         = "cinema_booking"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

const (
	// User related constants
	TestUserName     = "John Doe"
	TestUserEmail    = "test@example.com"
	TestUserPassword = "Test123!@#"
	TestUserMobile   = "05555555555"

	// Movie related constants
	TestMovieTitle       = "Test Movie"
	TestMovieDescription = "A test movie description."
	TestMovieLanguage    = "English"
	TestMovieDuration    = 120
)
