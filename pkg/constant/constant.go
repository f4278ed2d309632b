package constant

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	// LocalsUserKey is the fiber locals key the auth middleware stores the
	// authenticated caller under.
	LocalsUserKey = "user"

	AvatarFormField     = "avatar"
	CoverImageFormField = "coverImage"
)
