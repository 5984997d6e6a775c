package render

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}{{with .SiteTitle}} | {{.}}{{end}}</title>
</head>
<body>
<article data-route="{{.Route}}">
<h1 class="note-title">{{.Title}}</h1>
{{- if .Tags}}
<ul class="tags">{{range .Tags}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
{{.Content}}
</article>
</body>
</html>
`

const folderTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Path}}{{with .SiteTitle}} | {{.}}{{end}}</title>
</head>
<body>
<nav data-folder="{{.Path}}">
{{- if .Subfolders}}
<ul class="folders">
{{- range .Subfolders}}
<li><a href="{{.Link}}/">{{.Name}}</a> <span class="count">{{.Count}}</span></li>
{{- end}}
</ul>
{{- end}}
{{- if .Pages}}
<ul class="pages">
{{- range .Pages}}
<li><a href="{{.Route}}">{{.Title}}</a></li>
{{- end}}
</ul>
{{- end}}
</nav>
</body>
</html>
`
