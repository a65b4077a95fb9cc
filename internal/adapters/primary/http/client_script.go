package http

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// clientScriptPath is where the reload client script is served
const clientScriptPath = "/livereload.js"

// clientScriptTag is inserted into HTML pages when injection is enabled
const clientScriptTag = `<script src="` + clientScriptPath + `"></script>`

// clientScript reloads the page on every reload frame and reconnects after
// the server restarts
const clientScript = `(function () {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    function connect() {
        var socket = new WebSocket(scheme + location.host + '/ws');
        socket.onmessage = function (msg) {
            if (msg.data === 'reload') {
                location.reload();
            }
        };
        socket.onclose = function () {
            setTimeout(connect, 2000);
        };
    }
    connect();
})();
`

// handleClientScript serves the reload client script
func (s *ReloadServer) handleClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write([]byte(clientScript)); err != nil {
		s.logger.Error("Failed to write client script: %v", err)
	}
}

// htmlTarget returns the HTML file a request resolves to, if any. Directory
// requests resolve to their index.html only when the URL ends in a slash, so
// the file server keeps handling its canonical redirects.
func htmlTarget(absPath string, info os.FileInfo, urlPath string) (string, bool) {
	if info.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			return "", false
		}
		index := filepath.Join(absPath, "index.html")
		indexInfo, err := os.Stat(index)
		if err != nil || indexInfo.IsDir() {
			return "", false
		}
		return index, true
	}

	if strings.HasSuffix(urlPath, "/index.html") {
		// Let the file server redirect to the directory
		return "", false
	}

	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".html", ".htm":
		return absPath, true
	default:
		return "", false
	}
}

// serveWithClientScript serves an HTML file with the client script tag
// inserted before </body>, or </html>, or at the end
func (s *ReloadServer) serveWithClientScript(w http.ResponseWriter, r *http.Request, path string) {
	content, err := os.ReadFile(path) // #nosec G304 - path is validated to be under the served root
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(injectClientScript(content)); err != nil {
		s.logger.Error("Failed to write response: %v", err)
	}
}

// injectClientScript inserts the client script tag into an HTML document
func injectClientScript(content []byte) []byte {
	lower := bytes.ToLower(content)
	for _, marker := range [][]byte{[]byte("</body>"), []byte("</html>")} {
		if i := bytes.LastIndex(lower, marker); i >= 0 {
			out := make([]byte, 0, len(content)+len(clientScriptTag))
			out = append(out, content[:i]...)
			out = append(out, clientScriptTag...)
			out = append(out, content[i:]...)
			return out
		}
	}
	return append(append([]byte{}, content...), clientScriptTag...)
}
