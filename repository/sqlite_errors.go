package repository

import "strings"

// isUniqueViolation, SQLite UNIQUE hatasını yakalar.
// modernc mesaj formatı: "UNIQUE constraint failed: votes.poll_id, votes.user_id".
// columns verilmişse mesajda o kolon da geçmeli.
func isUniqueViolation(err error, columns ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	for _, c := range columns {
		if !strings.Contains(msg, c) {
			return false
		}
	}
	return true
}

// isForeignKeyViolation, FK hatasını yakalar (ör. var olmayan poll'a option).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
