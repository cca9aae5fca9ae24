package remote

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/starford/bookdesk/internal/models"
)

// wireID accepts both string and numeric ids; json-server style backends
// emit either depending on version.
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

type wireBook struct {
	ID     wireID        `json:"id"`
	Title  string        `json:"title"`
	Author string        `json:"author"`
	Genre  string        `json:"genre"`
	Year   int           `json:"year"`
	Status models.Status `json:"status"`
}

func (w wireBook) book() models.Book {
	return models.Book{
		ID:     string(w.ID),
		Title:  w.Title,
		Author: w.Author,
		Genre:  w.Genre,
		Year:   w.Year,
		Status: w.Status,
	}
}
