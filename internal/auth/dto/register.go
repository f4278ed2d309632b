package dto

import "io"

type RegisterInput struct {
	FullName string `json:"fullName" form:"fullName"`
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`

	Avatar     *FileUpload `json:"-" form:"-"`
	CoverImage *FileUpload `json:"-" form:"-"`
}

// FileUpload carries one multipart file into the service layer without
// exposing the transport's multipart types.
type FileUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}
