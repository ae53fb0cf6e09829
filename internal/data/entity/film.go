package entity

type Film struct {
	BaseNoDelete
	Title           string `db:"title"`
	Description     string `db:"description"`
	DurationMinutes int    `db:"duration_minutes"`
	ReleaseYear     int    `db:"release_year"`
	Genre           string `db:"genre"`
}
