package api

import (
	"html/template"
	"net/http"
)

type pageData struct {
	Title   string
	Icon    string
	Message string
}

var (
	successPage = pageData{
		Title:   "Account connected",
		Icon:    "✅",
		Message: "Your account is connected. You can close this window and return to Discord.",
	}
	errorPage = pageData{
		Title: "Connection failed",
		Icon:  "❌",
	}
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;background:#1e1f22;color:#f2f3f5;display:flex;align-items:center;justify-content:center;height:100vh;margin:0}
main{text-align:center;max-width:28rem;padding:2rem;background:#2b2d31;border-radius:12px}
h1{font-size:1.5rem}
</style>
</head>
<body>
<main>
<div style="font-size:3rem">{{.Icon}}</div>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</main>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTemplate.Execute(w, data)
}
