// Package models defines the domain types for bookdesk.
package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is the circulation state of a book.
type Status string

// Circulation states.
const (
	StatusAvailable Status = "Available"
	StatusIssued    Status = "Issued"
)

// Statuses lists every valid Status in display order.
var Statuses = []Status{StatusAvailable, StatusIssued}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusIssued
}

// Genres is the closed set of genres accepted on create and update.
// Records already stored remotely may carry other values; they are displayed
// and filtered as-is.
var Genres = []string{
	"Classic",
	"Dystopian",
	"Fiction",
	"Non-Fiction",
	"Romance",
	"Fantasy",
	"Science Fiction",
	"Mystery",
	"Adventure",
}

// Book is a single catalog record as held by the remote store.
// ID is assigned remotely on creation and never changes afterwards.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   int    `json:"year"`
	Status Status `json:"status"`
}

// Draft returns the identity-less payload of b.
func (b Book) Draft() Draft {
	return Draft{
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
		Year:   b.Year,
		Status: b.Status,
	}
}

// Draft is a book without identity: the body of create and update requests.
type Draft struct {
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Genre  string `json:"genre" yaml:"genre"`
	Year   int    `json:"year" yaml:"year"`
	Status Status `json:"status" yaml:"status"`
}

// Normalize trims surrounding whitespace from the text fields.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.Genre = strings.TrimSpace(d.Genre)
	d.Status = Status(strings.TrimSpace(string(d.Status)))
	return d
}

// Validate checks d against the book schema. The returned error, if any, is
// a validation.Errors keyed by JSON field name.
func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required.Error("title is required")),
		validation.Field(&d.Author, validation.Required.Error("author is required")),
		validation.Field(&d.Genre,
			validation.Required.Error("genre is required"),
			validation.In(genreValues()...).Error("must be one of: "+strings.Join(Genres, ", ")),
		),
		validation.Field(&d.Year,
			validation.Required.Error("year is required"),
			validation.Min(1).Error("year must be a positive integer"),
		),
		validation.Field(&d.Status,
			validation.Required.Error("status is required"),
			validation.In(StatusAvailable, StatusIssued).Error("must be one of: Available, Issued"),
		),
	)
}

// Book attaches id to d.
func (d Draft) Book(id string) Book {
	return Book{
		ID:     id,
		Title:  d.Title,
		Author: d.Author,
		Genre:  d.Genre,
		Year:   d.Year,
		Status: d.Status,
	}
}

func genreValues() []interface{} {
	out := make([]interface{}, len(Genres))
	for i, g := range Genres {
		out[i] = g
	}
	return out
}
