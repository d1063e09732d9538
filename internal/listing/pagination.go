// Package listing — постраничная выдача для проекций чтения.
package listing

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int // количество элементов на странице
	HasNext  bool
	HasPrev  bool
	Total    int // общее количество элементов
}

// Request — запрошенная страница до нормализации.
type Request struct {
	Page     int
	PageSize int
}

// Normalize подставляет дефолты и ограничивает размер страницы.
func (r Request) Normalize() Request {
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if r.Page <= 0 {
		r.Page = 1
	}
	return r
}

// Paginate возвращает срез items для указанной страницы и метаданные.
// items должны быть уже отсортированы.
func Paginate[T any](items []T, req Request) Page[T] {
	req = req.Normalize()
	total := len(items)

	start := (req.Page - 1) * req.PageSize
	if start > total {
		start = total
	}

	end := start + req.PageSize
	if end > total {
		end = total
	}

	return Page[T]{
		Items:    items[start:end],
		Page:     req.Page,
		PageSize: req.PageSize,
		HasNext:  end < total,
		HasPrev:  req.Page > 1,
		Total:    total,
	}
}
