package response

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	_, _ = w.Write(bytes)
}
