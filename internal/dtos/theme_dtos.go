package dtos

type ThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=dark light"`
}

type ThemeResponse struct {
	Theme string `json:"theme"`
}
