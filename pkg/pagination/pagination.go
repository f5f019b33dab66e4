package pagination

const (
	// DefaultSize is the standard page size when one is not provided.
	DefaultSize = 25
	// MaxSize caps how many rows any page request can ask for.
	MaxSize = 100
)

// Params holds offset pagination inputs, matching the page/size contract of the
// vehicle inventory service.
type Params struct {
	Page int
	Size int
}

// Normalize clamps the params to the supported bounds.
func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Page wraps one page of results plus the remote service's totals.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// Empty returns a zero-result page for the given params.
func Empty[T any](params Params) *Page[T] {
	params = params.Normalize()
	return &Page[T]{
		Content: []T{},
		Page:    params.Page,
		Size:    params.Size,
	}
}
