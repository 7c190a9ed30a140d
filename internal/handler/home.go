package handler

import (
	"io"
	"net/http"
)

// Banner is the liveness text served at the root path.
const Banner = "Result processing system server is running..."

// HandleHome writes the liveness banner.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, Banner)
}
