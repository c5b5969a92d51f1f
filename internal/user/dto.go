package user

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type UsersResponse struct {
	Users []*User `json:"users"`
}

type PagedResponse struct {
	Items           []*User `json:"items"`
	PageNumber      int     `json:"pageNumber"`
	PageSize        int     `json:"pageSize"`
	TotalPages      int     `json:"totalPages"`
	TotalCount      int64   `json:"totalCount"`
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
}

// ClampPage forces pageNumber >= 1 and 1 <= pageSize <= MaxPageSize.
func ClampPage(pageNumber, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return pageNumber, pageSize
}
