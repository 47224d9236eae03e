package models

type Hotel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Country     *string  `json:"country"`
	City        *string  `json:"city"`
	Address     *string  `json:"address"`
	Zip         *string  `json:"zip"`
	StarRating  *float64 `json:"star_rating"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// TaskMessages stores the filtered provider messages of one task as a JSON blob.
type TaskMessages struct {
	ID           int64  `json:"id"`
	TaskID       int64  `json:"task_id"`
	MessagesBlob string `json:"messages_blob"`
}
