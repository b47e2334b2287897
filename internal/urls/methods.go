package urls

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Methods dispatches a route to a handler per HTTP method. HEAD falls back
// to GET and is advertised in Allow whenever GET is. OPTIONS is answered
// with the Allow header and any other method gets 405.
type Methods map[string]http.Handler

func (m Methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, ok := m[r.Method]
	if !ok && r.Method == http.MethodHead {
		h, ok = m[http.MethodGet]
	}
	if ok {
		h.ServeHTTP(w, r)
		return
	}

	w.Header().Set("Allow", m.allow())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"detail": fmt.Sprintf("Method %q not allowed.", r.Method),
	})
}

func (m Methods) allow() string {
	methods := make([]string, 0, len(m)+2)
	for method := range m {
		methods = append(methods, method)
	}
	if _, get := m[http.MethodGet]; get {
		if _, head := m[http.MethodHead]; !head {
			methods = append(methods, http.MethodHead)
		}
	}
	methods = append(methods, http.MethodOptions)
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
