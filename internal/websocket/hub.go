package websocket

import (
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"tradelink/internal/metrics"
	"tradelink/internal/models"
	"tradelink/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope - сериализованное сообщение и владелец, которому оно адресовано
type envelope struct {
	ownerID string
	data    []byte
}

// Hub управляет всеми активными WebSocket соединениями
//
// Клиент, подключившийся с ownerId, получает только события этого владельца.
// Клиент без ownerId получает все события.
//
// Использование:
// 1. Создать hub: hub := NewHub(logger)
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять события: hub.BroadcastBotEvent(...)
// 4. Остановить: hub.Stop()
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex

	dropped uint64
	log     *utils.Logger
}

// NewHub создает новый Hub
func NewHub(log *utils.Logger) *Hub {
	if log == nil {
		log = utils.NewNopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.WithComponent("ws"),
	}
}

// Run запускает главный цикл Hub до вызова Stop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(n))
			h.log.Debug("client connected", zap.Int("clients", n), utils.OwnerID(client.ownerID))

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				if client.ownerID == "" || client.ownerID == msg.ownerID {
					clients = append(clients, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- msg.data:
				default:
					// Клиент не успевает читать - отключаем
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(n))
	h.log.Debug("client disconnected", zap.Int("clients", n))
}

// Stop останавливает Run и закрывает всех клиентов
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast сериализует сообщение и ставит его в очередь.
// При переполненной очереди сообщение отбрасывается, вызывающий не блокируется.
func (h *Hub) Broadcast(ownerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal broadcast message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- envelope{ownerID: ownerID, data: data}:
	default:
		atomic.AddUint64(&h.dropped, 1)
	}
}

// BroadcastCredentialEvent отправляет событие подключения вендора
func (h *Hub) BroadcastCredentialEvent(ownerID string, vendor models.Vendor, connected bool) {
	h.Broadcast(ownerID, NewCredentialUpdateMessage(ownerID, vendor, connected))
}

// BroadcastBotEvent отправляет событие бота
func (h *Hub) BroadcastBotEvent(ownerID string, action string, b *models.Bot) {
	h.Broadcast(ownerID, NewBotUpdateMessage(ownerID, action, b))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages - число сообщений, отброшенных из-за переполненной очереди
func (h *Hub) DroppedMessages() uint64 {
	return atomic.LoadUint64(&h.dropped)
}
