package models

type Post struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	ImageFilename *string `json:"image_filename"`
	UserID        int64   `json:"user_id"`
}
