package service

import (
	"context"
	"encoding/json"
	"sync"

	"notes-server/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// WSConn is the part of a websocket connection the hub writes to.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// textMessage matches websocket.TextMessage.
const textMessage = 1

// sendQueueSize bounds how many events may wait for a slow socket before it
// is dropped.
const sendQueueSize = 64

type hubClient struct {
	conn WSConn
	send chan []byte
}

// NoteEventHub keeps one room per author and forwards note events to the
// sockets of that author only. Each socket has its own writer goroutine, so
// a stalled client never holds the hub lock.
type NoteEventHub struct {
	rooms map[string]map[WSConn]*hubClient
	mu    sync.Mutex
	log   *zap.SugaredLogger
}

func NewNoteEventHub(log *zap.SugaredLogger) *NoteEventHub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NoteEventHub{
		rooms: make(map[string]map[WSConn]*hubClient),
		log:   log,
	}
}

func (h *NoteEventHub) Subscribe(author string, conn WSConn) {
	room := models.CanonicalID(author)
	client := &hubClient{conn: conn, send: make(chan []byte, sendQueueSize)}

	h.mu.Lock()
	if _, exists := h.rooms[room]; !exists {
		h.rooms[room] = make(map[WSConn]*hubClient)
	}
	if _, exists := h.rooms[room][conn]; exists {
		h.mu.Unlock()
		return
	}
	h.rooms[room][conn] = client
	h.mu.Unlock()

	go h.writeLoop(room, client)
	h.log.Debugw("client subscribed to note events", "author", room)
}

func (h *NoteEventHub) writeLoop(room string, client *hubClient) {
	for message := range client.send {
		if err := client.conn.WriteMessage(textMessage, message); err != nil {
			h.log.Warnw("error sending note event", "author", room, "error", err)
			h.RemoveClient(client.conn)
			client.conn.Close()
			return
		}
	}
}

// Publish queues message for every socket in the author's room. A socket
// whose queue is full is closed and dropped.
func (h *NoteEventHub) Publish(author string, message []byte) {
	room := models.CanonicalID(author)

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, exists := h.rooms[room]
	if !exists {
		return
	}
	for conn, client := range clients {
		select {
		case client.send <- message:
		default:
			h.log.Warnw("dropping slow note events client", "author", room)
			delete(clients, conn)
			close(client.send)
			conn.Close()
		}
	}
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// PublishNoteEvent lets the hub act as the publisher when no Redis is
// configured, delivering to sockets on this instance only.
func (h *NoteEventHub) PublishNoteEvent(_ context.Context, event models.NoteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.Publish(event.Author, data)
	return nil
}

func (h *NoteEventHub) RemoveClient(conn WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, clients := range h.rooms {
		if client, exists := clients[conn]; exists {
			delete(clients, conn)
			close(client.send)
			if len(clients) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// Relay copies messages from a Redis subscription into the rooms until ctx
// is done or the subscription channel closes.
func (h *NoteEventHub) Relay(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event models.NoteEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warnw("dropping malformed note event", "channel", msg.Channel, "error", err)
				continue
			}
			h.Publish(event.Author, []byte(msg.Payload))
		}
	}
}

func (h *NoteEventHub) clientCount(author string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[models.CanonicalID(author)])
}
