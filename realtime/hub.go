package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/dimasprakoso/penagihan-app/models"
)

// Event types
const (
	EventNotificationUpdate = "notification_update"
	EventNotificationDelete = "notification_delete"
	EventPriorityUpdate     = "priority_update"
	EventProjectUpdate      = "project_update"
	EventDashboardUpdate    = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi dashboard yang aktif, dipetakan ke user pemiliknya.
type Hub struct {
	clients map[*websocket.Conn]uint // conn -> user id
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]uint),
}

// RegisterClient -> menambahkan connection ke set dengan user id
func RegisterClient(conn *websocket.Conn, userID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = userID
}

// UnregisterClient -> melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastNotification -> kirim notifikasi baru/terubah hanya ke pemiliknya
func BroadcastNotification(notif models.Notification) {
	sendTo(notif.UserID, Message{
		Event: EventNotificationUpdate,
		Data:  notif,
	})
}

// BroadcastNotificationDelete -> beri tahu pemilik bahwa notifikasinya dihapus
func BroadcastNotificationDelete(userID uint, jenis, refID string) {
	sendTo(userID, Message{
		Event: EventNotificationDelete,
		Data:  map[string]string{"jenis": jenis, "ref_id": refID},
	})
}

// BroadcastPriorityUpdate -> siarkan perubahan prioritas project ke semua client
func BroadcastPriorityUpdate(project models.Project) {
	broadcast(Message{
		Event: EventPriorityUpdate,
		Data:  project,
	})
}

// BroadcastProjectUpdate -> siarkan perubahan data project ke semua client
func BroadcastProjectUpdate(project models.Project) {
	broadcast(Message{
		Event: EventProjectUpdate,
		Data:  project,
	})
}

// BroadcastDashboardUpdate -> minta client menyegarkan kartu statistik
func BroadcastDashboardUpdate(data interface{}) {
	broadcast(Message{
		Event: EventDashboardUpdate,
		Data:  data,
	})
}

func broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Error writing to websocket client: %v", err)
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}

func sendTo(userID uint, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message for user %d: %v", userID, err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for conn, owner := range hub.clients {
		if owner != userID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Error writing to websocket client: %v", err)
			delete(hub.clients, conn)
			conn.Close()
		}
	}
}
