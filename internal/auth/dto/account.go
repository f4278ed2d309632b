package dto

type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UpdateAccountInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
