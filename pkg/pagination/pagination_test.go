package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(target string) echo.Context {
	e := echo.New()
	return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestFromContext_Defaults(t *testing.T) {
	p := FromContext(newContext("/"))
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := FromContext(newContext("/?limit=50&offset=10"))
	if p.Limit != 50 {
		t.Errorf("expected limit 50, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_Clamps(t *testing.T) {
	p := FromContext(newContext("/?limit=5000&offset=-4"))
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected negative offset clamped to 0, got %d", p.Offset)
	}
}

func TestNewResponse_HasMore(t *testing.T) {
	if r := NewResponse(nil, 50, 20, 20); !r.HasMore {
		t.Error("expected has_more at offset 20 of 50")
	}
	if r := NewResponse(nil, 50, 20, 40); r.HasMore {
		t.Error("expected no more results at offset 40 of 50")
	}
}

func TestPageFromContext(t *testing.T) {
	page, size := PageFromContext(newContext("/"), DefaultPageSize)
	if page != 0 || size != DefaultPageSize {
		t.Errorf("expected (0, %d), got (%d, %d)", DefaultPageSize, page, size)
	}

	page, size = PageFromContext(newContext("/?page=3&page_size=500"), DefaultPageSize)
	if page != 3 || size != MaxLimit {
		t.Errorf("expected (3, %d), got (%d, %d)", MaxLimit, page, size)
	}
}

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		n, page   int
		wantPage  int
		wantItems []int
		wantPages int
	}{
		{"first page", 30, 1, 1, ints(12), 3},
		{"last partial page", 30, 3, 3, []int{25, 26, 27, 28, 29, 30}, 3},
		{"page beyond end clamps", 30, 9, 3, []int{25, 26, 27, 28, 29, 30}, 3},
		{"page zero clamps", 30, 0, 1, ints(12), 3},
		{"exact multiple", 24, 2, 2, []int{13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}, 2},
		{"empty list", 0, 4, 1, []int{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info := Paginate(ints(tt.n), tt.page, DefaultPageSize)
			if info.Page != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, info.Page)
			}
			if info.TotalPages != tt.wantPages {
				t.Errorf("expected %d pages, got %d", tt.wantPages, info.TotalPages)
			}
			if info.TotalItems != tt.n {
				t.Errorf("expected %d items total, got %d", tt.n, info.TotalItems)
			}
			if len(got) != len(tt.wantItems) {
				t.Fatalf("expected %d items, got %d", len(tt.wantItems), len(got))
			}
			for i := range got {
				if got[i] != tt.wantItems[i] {
					t.Errorf("item %d: expected %d, got %d", i, tt.wantItems[i], got[i])
				}
			}
		})
	}
}

func TestPaginate_NavigationFlags(t *testing.T) {
	_, first := Paginate(ints(30), 1, 12)
	if first.HasPrevious || !first.HasNext {
		t.Errorf("unexpected flags on first page: %+v", first)
	}
	_, last := Paginate(ints(30), 3, 12)
	if !last.HasPrevious || last.HasNext {
		t.Errorf("unexpected flags on last page: %+v", last)
	}
}
