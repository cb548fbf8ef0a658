package httpapi

import (
	"html/template"
	"net/http"
)

const privacyUpdated = "2026-07-14"

var publicPageT = template.Must(template.New("public").Parse(publicLayout))

type publicPageData struct {
	Title string
	Body  template.HTML
}

func (a *api) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	renderPublicPage(w, http.StatusOK, "Connectify", publicHomeBody)
}

func (a *api) handlePrivacy(w http.ResponseWriter, r *http.Request) {
	renderPublicPage(w, http.StatusOK, "Privacy Policy", publicPrivacyBody)
}

func renderPublicPage(w http.ResponseWriter, status int, title string, body template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = publicPageT.Execute(w, publicPageData{
		Title: title,
		Body:  body,
	})
}

const publicLayout = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>{{.Title}}</title>
    <style>
      :root{
        --bg:#0c1220;
        --ink:#f1f5f9;
        --muted:#94a3b8;
        --accent:#38bdf8;
        --card:rgba(15,23,42,0.85);
        --line:rgba(148,163,184,0.25);
        color-scheme:dark;
      }
      *{box-sizing:border-box}
      body{
        margin:0;
        font-family:"Helvetica Neue",Arial,sans-serif;
        color:var(--ink);
        background:var(--bg);
        min-height:100vh;
      }
      header{
        display:flex;
        align-items:center;
        gap:14px;
        padding:24px clamp(20px,4vw,64px);
      }
      .logo-mark{
        width:42px;
        height:42px;
        border-radius:12px;
        display:flex;
        align-items:center;
        justify-content:center;
        font-weight:700;
        color:#0c1220;
        background:var(--accent);
      }
      main{
        max-width:880px;
        margin:0 auto;
        padding:0 clamp(20px,4vw,64px) 80px;
      }
      h1,h2{margin:0 0 12px}
      .lead{color:var(--muted);line-height:1.6;margin:0 0 16px}
      .card{
        background:var(--card);
        border:1px solid var(--line);
        border-radius:16px;
        padding:20px;
        margin-bottom:16px;
      }
      footer{
        margin-top:36px;
        padding-top:18px;
        border-top:1px solid var(--line);
        color:var(--muted);
        font-size:13px;
      }
      footer a{color:var(--accent);text-decoration:none}
    </style>
  </head>
  <body>
    <header>
      <span class="logo-mark">C</span>
      <strong>Connectify</strong>
    </header>
    <main>
      {{.Body}}
      <footer>
        <div>Copyright 2026 Connectify. <a href="/privacy">Privacy</a></div>
      </footer>
    </main>
  </body>
</html>`

var publicHomeBody = template.HTML(`
<section class="card">
  <h1>Stay close to your people.</h1>
  <p class="lead">Connectify keeps your friends, conversations, and updates in one place. Friend requests, private messaging with read receipts, and realtime notifications are built in from the start.</p>
</section>
<section class="card">
  <h2>Friends</h2>
  <p class="lead">Send requests, accept or decline, and see who is waiting on you.</p>
</section>
<section class="card">
  <h2>Messaging</h2>
  <p class="lead">Private one-to-one conversations with delivery over a live connection and unread tracking across devices.</p>
</section>
`)

var publicPrivacyBody = template.HTML(`
<section class="card">
  <h1>Connectify Privacy Policy</h1>
  <p class="lead">Last updated: ` + privacyUpdated + `</p>
  <h2>Data we collect</h2>
  <ul>
    <li>Account information such as email, username, and password (stored as a secure hash).</li>
    <li>Content you create, including messages, posts, and friend connections.</li>
    <li>Session and security data, including cookies needed to keep you signed in.</li>
    <li>Push notification tokens for devices you register.</li>
  </ul>
  <h2>How we use data</h2>
  <ul>
    <li>To authenticate your account and keep you signed in.</li>
    <li>To deliver messages and notifications to you and the people you talk to.</li>
    <li>To protect the service and prevent abuse.</li>
  </ul>
  <h2>Sharing</h2>
  <p class="lead">We do not sell your personal data. We share data only with infrastructure providers needed to run the service.</p>
  <h2>Retention</h2>
  <p class="lead">We keep data for as long as your account is active or as required for service operation. You can request deletion.</p>
</section>
`)
