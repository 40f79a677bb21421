package srv

import "html/template"

var resultPage = template.Must(template.New("result").Parse(resultPageHTML))

const resultPageHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>

<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:image" content="{{.OGPURL}}">
<meta property="og:url" content="{{.PageURL}}">
<meta property="og:type" content="website">
<meta property="og:image:width" content="1200">
<meta property="og:image:height" content="630">

<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
<meta name="twitter:image" content="{{.OGPURL}}">

<style>
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
:root{
  --primary:#bc002d;--primary-dark:#8f0022;
  --bg:#f5f0e8;--surface:#faf7f0;--surface2:#ede8dc;
  --text:#2c2420;--text2:#8a7e72;--border:#d8d0c4;
  --radius:4px;
}
body{font-family:'Hiragino Maru Gothic Pro','Noto Sans JP',sans-serif;background:var(--bg);color:var(--text);line-height:1.7}
.header{text-align:center;padding:2rem 1rem 1.5rem;border-bottom:1px solid var(--border)}
.header h1{font-size:2.2rem;letter-spacing:.15em}
.header p{font-size:.85rem;color:var(--text2)}
.container{max-width:600px;margin:0 auto;padding:1.5rem 1rem}
.card{background:var(--surface);border:1px solid var(--border);border-radius:var(--radius);padding:1.25rem;margin-bottom:1rem}
.card h2{font-size:1.05rem;margin-bottom:.75rem;padding-bottom:.4rem;border-bottom:1px solid var(--border)}
.title{text-align:center;font-size:1.15rem;font-weight:700;color:var(--primary)}
.reason{text-align:center;color:var(--text2);margin-bottom:.75rem}
.scores,.history{list-style:none}
.scores li{display:flex;gap:.5rem;padding:.5rem .9rem;margin-bottom:.35rem;background:var(--surface2);border:1px solid var(--border);border-radius:var(--radius)}
.scores li:first-child{font-weight:700}
.scores .name{flex:1}
.scores .pts{color:var(--primary);font-weight:700}
.chain{font-size:.85rem;color:var(--text2);padding:.5rem .75rem;background:var(--surface2);border-radius:var(--radius);margin-bottom:.75rem;word-break:break-all}
.history li{display:flex;gap:.5rem;padding:.3rem .5rem;border-bottom:1px solid var(--border);font-size:.85rem}
.history li:last-child{border-bottom:none}
.history .num{color:var(--text2);min-width:1.5rem;text-align:right}
.history .word{font-weight:600;color:var(--primary-dark)}
.history .reading{color:var(--text2)}
.history .player{margin-left:auto;color:var(--text2);font-size:.75rem}
</style>
</head>
<body>
<div class="header">
  <h1>しりとり</h1>
  <p>ことばを繋ぐ、みんなで遊ぶ</p>
</div>
<div class="container">
  <div class="card">
    <p class="title">{{.Title}}</p>
    <p class="reason">{{.Reason}}</p>
    <h2>Scores</h2>
    <ul class="scores">
    {{- range .Scores}}
      <li><span>{{.Rank}}</span><span class="name">{{.Name}}</span><span class="pts">{{.Score}}</span></li>
    {{- else}}
      <li><span class="name">No words were played.</span></li>
    {{- end}}
    </ul>
  </div>
  <div class="card">
    <h2>Words</h2>
    <div class="chain">{{if .Chain}}{{.Chain}}{{else}}(none){{end}}</div>
    <ul class="history">
    {{- range $h := .History}}
      <li><span class="num">{{$h.Num}}.</span><span class="word">{{$h.Word}}</span>{{if $h.Reading}}<span class="reading">{{$h.Reading}}</span>{{end}}<span class="player">{{$h.Player}}</span></li>
    {{- end}}
    </ul>
  </div>
</div>
</body>
</html>`
