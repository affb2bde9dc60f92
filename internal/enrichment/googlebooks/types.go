package googlebooks

// volumesResponse is the subset of GET /volumes used for enrichment.
// Every field is optional in the API, so scalars are pointers.
type volumesResponse struct {
	TotalItems *int     `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         *string     `json:"id"`
	VolumeInfo *volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               *string              `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           *string              `json:"publisher"`
	PublishedDate       *string              `json:"publishedDate"`
	Description         *string              `json:"description"`
	PageCount           *int                 `json:"pageCount"`
	Language            *string              `json:"language"`
	AverageRating       *float64             `json:"averageRating"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	ImageLinks          *imageLinks          `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       *string `json:"type"`
	Identifier *string `json:"identifier"`
}

type imageLinks struct {
	SmallThumbnail *string `json:"smallThumbnail"`
	Thumbnail      *string `json:"thumbnail"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
