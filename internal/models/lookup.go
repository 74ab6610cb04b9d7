package models

// Room is a classroom lookup record; only the name is snapshotted into sessions.
type Room struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Teacher is a staff lookup record; only the name is snapshotted into sessions.
type Teacher struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
