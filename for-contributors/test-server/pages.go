package main

import "html/template"

var signupPage = template.Must(template.New("signup").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign up</title></head>
<body>
  <h1>Sign up</h1>
  {{if .Submitted}}<p id="confirmation">Thanks, your response has been recorded.</p>{{end}}
  <form method="post" action="/signup">
    <label for="name">Full name</label>
    <input type="text" id="name" name="name" placeholder="Your name" aria-label="Full name">
    <label for="email">Email</label>
    <input type="email" id="email" name="email" placeholder="you@example.com" aria-label="Email">
    <label for="phone">Phone</label>
    <input type="tel" id="phone" name="phone" placeholder="Phone number" aria-label="Phone">
    <label for="birthdate">Birth date</label>
    <input type="datetime-local" id="birthdate" name="birthdate" aria-labelledby="birthdate-label">
    <span id="birthdate-label">Birth date and time</span>
    <button type="submit" id="submit">Submit</button>
  </form>
</body>
</html>
`))

var newArticlePage = template.Must(template.New("new-article").Parse(`<!DOCTYPE html>
<html>
<head><title>New article</title></head>
<body>
  <h1>New article</h1>
  <form method="post" action="/admin/articles">
    <input type="text" id="title" name="title" placeholder="Title">
    <textarea id="body" name="body" placeholder="Body"></textarea>
    <button type="submit" id="submit">Save</button>
  </form>
</body>
</html>
`))

var articlePage = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.title}}</title></head>
<body>
  <h1 id="article-title">{{.title}}</h1>
  <p id="article-status" data-status="{{.status}}">Status: {{.status}}</p>
  <form method="post" action="/admin/articles/{{.id}}/status">
    <input type="hidden" name="status" value="pending">
    <button type="submit" id="mark-pending">Submit for review</button>
  </form>
  <form method="post" action="/admin/articles/{{.id}}/status">
    <input type="hidden" name="status" value="public">
    <button type="submit" id="mark-public">Publish</button>
  </form>
  <a id="new-article" href="/admin/articles/new">New article</a>
</body>
</html>
`))
