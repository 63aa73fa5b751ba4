package handlers

import (
	"net/http"
)

const homePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>protiq — protein quality calculator</title>
</head>
<body>
  <h1>protiq</h1>
  <p>Quality-adjusted protein calculator. The browser UI is served from
  <code>/assets/</code>; the JSON API lives under <code>/api/</code>.</p>
</body>
</html>
`

// Home serves the application shell. The interactive UI is static and
// consumes the JSON API.
func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(homePage)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
