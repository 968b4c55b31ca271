package playback

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/branchplay/branchplay/internal/httputil"
	"github.com/branchplay/branchplay/internal/validate"
)

const videoURLExpiry = 2 * time.Hour

var watchPageTemplate = template.Must(template.New("watch").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style nonce="{{.Nonce}}">
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            background: #0f172a;
            color: #f8fafc;
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "PingFang SC", sans-serif;
            min-height: 100vh;
        }
        .container { max-width: 1100px; margin: 0 auto; padding: 1.5rem 1rem; }
        h1 { font-size: 1.4rem; margin-bottom: 1rem; }
        .stage { position: relative; }
        video { width: 100%; border-radius: 8px; background: #000; display: block; }
        .empty { padding: 4rem 1rem; text-align: center; color: #94a3b8; border: 1px dashed #334155; border-radius: 8px; }
        #cards { display: grid; gap: 1rem; margin-top: 1rem; }
        .card { background: #1e293b; border: 1px solid #334155; border-radius: 8px; padding: 1rem; }
        .card.answered { display: none; }
        .card .time { color: #38bdf8; font-size: 0.8rem; margin-bottom: 0.4rem; }
        .card .text { margin-bottom: 0.75rem; }
        .card button {
            background: #0ea5e9; color: #fff; border: none; border-radius: 6px;
            padding: 0.5rem 0.9rem; margin: 0 0.5rem 0.5rem 0; cursor: pointer; font-size: 0.95rem;
        }
        .card button:hover { background: #0284c7; }
        #status { margin-top: 0.75rem; color: #fca5a5; min-height: 1.2rem; font-size: 0.9rem; }
        .chat { margin-top: 2rem; background: #1e293b; border-radius: 8px; padding: 1rem; }
        .chat textarea { width: 100%; min-height: 4rem; border-radius: 6px; padding: 0.5rem; border: 1px solid #334155; background: #0f172a; color: #f8fafc; }
        .chat .row { display: flex; gap: 0.75rem; align-items: center; margin-top: 0.5rem; }
        .chat button { background: #22c55e; color: #fff; border: none; border-radius: 6px; padding: 0.45rem 1rem; cursor: pointer; }
        #chat-reply { margin-top: 0.75rem; white-space: pre-wrap; line-height: 1.5; }
    </style>
</head>
<body>
<main class="container">
    <h1>{{.Title}}</h1>
    <div class="stage">
        {{if .VideoURL}}
        <video id="player" src="{{.VideoURL}}" controls playsinline preload="metadata"></video>
        {{else}}
        <div class="empty">This scene has no video yet.</div>
        {{end}}
    </div>
    <div id="status" role="status"></div>
    <section id="cards" aria-live="polite"></section>
    {{if .ChatEnabled}}
    <section class="chat">
        <textarea id="chat-input" maxlength="{{.ChatMaxLength}}" placeholder="Ask a question about this scene"></textarea>
        <div class="row">
            <label><input type="checkbox" id="chat-web"> Web search</label>
            <button id="chat-send" type="button">Send</button>
        </div>
        <div id="chat-reply"></div>
    </section>
    {{end}}
</main>
<script nonce="{{.Nonce}}">
(function() {
    const sceneID = {{.SceneID}};
    const video = document.getElementById("player");
    const cards = document.getElementById("cards");
    const statusEl = document.getElementById("status");
    let socket = null;
    let session = null;
    let ready = false;

    function showStatus(msg) { statusEl.textContent = msg || ""; }

    function send(frame) {
        if (ready) socket.send(JSON.stringify(frame));
    }

    function renderCard(q) {
        if (document.getElementById("q-" + q.id)) return;
        const card = document.createElement("div");
        card.className = "card";
        card.id = "q-" + q.id;
        const time = document.createElement("div");
        time.className = "time";
        time.textContent = q.appearLabel;
        const text = document.createElement("div");
        text.className = "text";
        text.textContent = q.text;
        card.appendChild(time);
        card.appendChild(text);
        q.options.forEach(function(label, i) {
            const btn = document.createElement("button");
            btn.type = "button";
            btn.textContent = label;
            btn.addEventListener("click", function() {
                send({type: "select", questionId: q.id, option: i});
            });
            card.appendChild(btn);
        });
        cards.appendChild(card);
    }

    function dismissCard(id) {
        const card = document.getElementById("q-" + id);
        if (card) card.classList.add("answered");
    }

    function runCommand(cmd) {
        if (!video) return;
        switch (cmd.type) {
        case "pause":
            video.pause();
            break;
        case "seek":
            video.currentTime = cmd.time;
            break;
        case "play":
            video.play().catch(function(err) { showStatus("Playback blocked: " + err.message); });
            break;
        }
    }

    function onFrame(event) {
        const frame = JSON.parse(event.data);
        switch (frame.type) {
        case "state":
            (frame.pending || []).forEach(renderCard);
            (frame.state || []).forEach(function(s) { if (s.answered) dismissCard(s.id); });
            break;
        case "reveal":
            renderCard(frame.question);
            break;
        case "dismiss":
            dismissCard(frame.questionId);
            break;
        case "command":
            runCommand(frame.command);
            break;
        case "error":
            showStatus(frame.error);
            break;
        }
    }

    function connect() {
        const proto = location.protocol === "https:" ? "wss:" : "ws:";
        socket = new WebSocket(proto + "//" + location.host + "/api/sessions/" + session.sessionId + "/ws?token=" + encodeURIComponent(session.token));
        socket.addEventListener("open", function() {
            ready = true;
            showStatus("");
            if (video && video.duration) send({type: "duration", time: video.duration});
        });
        socket.addEventListener("message", onFrame);
        socket.addEventListener("close", function() {
            ready = false;
            showStatus("Connection lost, reconnecting...");
            setTimeout(connect, 2000);
        });
    }

    fetch("/api/sessions", {
        method: "POST",
        headers: {"Content-Type": "application/json"},
        body: JSON.stringify({scene: sceneID})
    }).then(function(resp) {
        if (!resp.ok) throw new Error("could not start session");
        return resp.json();
    }).then(function(data) {
        session = data;
        connect();
    }).catch(function(err) { showStatus(err.message); });

    if (video) {
        video.addEventListener("timeupdate", function() { send({type: "progress", time: video.currentTime}); });
        video.addEventListener("seeked", function() { send({type: "seek", time: video.currentTime}); });
        video.addEventListener("loadedmetadata", function() { send({type: "duration", time: video.duration}); });
    }

    const chatSend = document.getElementById("chat-send");
    if (chatSend) {
        chatSend.addEventListener("click", function() {
            const input = document.getElementById("chat-input");
            const reply = document.getElementById("chat-reply");
            const message = input.value.trim();
            if (!message) return;
            chatSend.disabled = true;
            reply.textContent = "...";
            fetch("/api/chat", {
                method: "POST",
                headers: {"Content-Type": "application/json"},
                body: JSON.stringify({message: message, webSearch: document.getElementById("chat-web").checked})
            }).then(function(resp) { return resp.json(); }).then(function(data) {
                reply.textContent = data.reply || data.error || "";
            }).catch(function(err) {
                reply.textContent = err.message;
            }).finally(function() { chatSend.disabled = false; });
        });
    }
})();
</script>
</body>
</html>`))

type watchPageData struct {
	Title         string
	SceneID       string
	VideoURL      string
	Nonce         string
	ChatEnabled   bool
	ChatMaxLength int
}

// WatchPage renders the player for ?scene=<id>, falling back to the default
// scene when the parameter is absent.
func (h *Handler) WatchPage(w http.ResponseWriter, r *http.Request) {
	sceneID := r.URL.Query().Get("scene")
	if sceneID == "" {
		sceneID = h.defaultScene
	}
	if msg := validate.SceneID(sceneID); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	sc := h.catalog.Resolve(sceneID)
	title := sc.Title
	if title == "" {
		title = sc.ID
	}

	videoURL := sc.VideoURL
	if videoURL == "" && sc.VideoKey != "" && h.videos != nil {
		signed, err := h.videos.GenerateDownloadURL(r.Context(), sc.VideoKey, videoURLExpiry)
		if err != nil {
			slog.Error("watch page: failed to sign video url", "scene_id", sc.ID, "key", sc.VideoKey, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		videoURL = signed
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := watchPageTemplate.Execute(w, watchPageData{
		Title:         title,
		SceneID:       sc.ID,
		VideoURL:      videoURL,
		Nonce:         httputil.NonceFromContext(r.Context()),
		ChatEnabled:   h.chatEnabled,
		ChatMaxLength: validate.MaxChatMessageLength,
	}); err != nil {
		slog.Error("watch page: failed to render", "scene_id", sc.ID, "error", err)
	}
}
