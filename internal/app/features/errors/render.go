// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/inboxhub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// RenderServerError shows a generic failure page without leaking internals.
// The real error should already have been logged by the caller.
func RenderServerError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusInternalServerError)
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Something went wrong", "/"),
		Message: "An unexpected error occurred. Please try again.",
	}
	templates.Render(w, r, "error_page", data)
}
