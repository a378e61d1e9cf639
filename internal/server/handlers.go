// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HealthBody is the static liveness response.
const HealthBody = "Relay chat server is running."

// WebSocketHandler upgrades GET requests to WebSocket, creates a Client with a
// fresh connection id and registers it with the hub. The hub launches the
// client's pumps.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(conn, h, r.RemoteAddr)
	if !h.join(client) {
		client.closeConnection()
	}
}

// HealthHandler responds 200 with a static plain text body.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, HealthBody)
}

// TestPageHandler serves a small HTML client for trying the relay from a
// browser: join with a name and role, chat, and moderate.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		log.Error().Err(err).Msg("Error writing HTML response")
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Relay Chat Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages, #users {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #messages { width: 60%; float: left; }
        #users { width: 25%; float: left; margin-left: 10px; }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .system { color: gray; font-style: italic; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Relay Chat Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="username" placeholder="Username">
        <input type="text" id="role" placeholder="Role (member, moderator...)">
        <button id="connectButton" onclick="toggleConnection()">Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Message or /kick name, /delete id, /ban id" disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>
    <div id="users"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const usersDiv = document.getElementById('users');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(msg) {
            const el = document.createElement('div');
            el.id = 'msg-' + msg.id;
            el.className = msg.type === 'system' ? 'system' : '';
            el.textContent = '[' + msg.id + '] ' + msg.username + ': ' + msg.text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function showUsers(users) {
            usersDiv.textContent = '';
            users.forEach(function(u) {
                const el = document.createElement('div');
                el.textContent = u.username + ' (' + u.role + ')';
                usersDiv.appendChild(el);
            });
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Leave' : 'Join';
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');

            ws.onopen = function() {
                updateStatus(true);
                ws.send(JSON.stringify({event: 'join', data: {
                    username: document.getElementById('username').value,
                    role: document.getElementById('role').value
                }}));
            };

            ws.onmessage = function(event) {
                const msg = JSON.parse(event.data);
                switch (msg.event) {
                case 'message': addMessage(msg.data); break;
                case 'messageHistory': msg.data.forEach(addMessage); break;
                case 'messageDeleted':
                    const el = document.getElementById('msg-' + msg.data);
                    if (el) { el.remove(); }
                    break;
                case 'userList': showUsers(msg.data); break;
                case 'kicked': addMessage({id: '-', username: 'System', text: 'You were kicked.', type: 'system'}); break;
                }
            };

            ws.onclose = function() {
                updateStatus(false);
                ws = null;
            };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: 'message', data: {text: text}}));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
