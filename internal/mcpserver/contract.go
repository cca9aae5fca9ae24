package mcpserver

// BookFormatContract describes the book record that LLM consumers must
// produce when creating or updating books.
const BookFormatContract = `# Bookdesk Book Format

Every book in the catalog has exactly these fields.

## Fields

| Field    | Type    | Rule                                                |
|----------|---------|-----------------------------------------------------|
| id       | string  | Assigned by the remote store. Never send on create. |
| title    | string  | Required, non-empty after trimming.                 |
| author   | string  | Required, non-empty after trimming.                 |
| genre    | string  | Required, one of the genres below.                  |
| year     | integer | Required, positive.                                 |
| status   | string  | Required, ` + "`Available`" + ` or ` + "`Issued`" + `.                  |

## Genres

Classic, Dystopian, Fiction, Non-Fiction, Romance, Fantasy, Science Fiction,
Mystery, Adventure.

Genre and status are matched exactly, including case.

## Rules

1. **Update replaces every field.** ` + "`update_book`" + ` fills omitted fields from the
   current record before sending, so the stored record is always complete.
2. **Deleting a missing id is an error.** Nothing is retried.
3. **The catalog is reloaded after every change.** Search results always
   reflect the remote store, never a local guess.

## Example

` + "```" + `json
{
  "title": "Dune",
  "author": "Frank Herbert",
  "genre": "Science Fiction",
  "year": 1965,
  "status": "Available"
}
` + "```" + `
`
