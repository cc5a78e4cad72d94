package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStream(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stream Suite")
}

var _ = Describe("subscriber queue", func() {
	It("drops events when the queue is full instead of blocking", func() {
		hub := NewHub(1)
		sub := newSubscriber(hub, nil, 1)

		Expect(sub.enqueue(NewStatusEvent("System", "Starting", "first"))).To(BeTrue())
		Expect(sub.enqueue(NewStatusEvent("System", "Starting", "second"))).To(BeFalse())
	})

	It("discards events for a finished subscriber", func() {
		hub := NewHub(1)
		sub := newSubscriber(hub, nil, 1)
		close(sub.done)

		Expect(sub.enqueue(NewStatusEvent("System", "Starting", "late"))).To(BeTrue())
	})
})

var _ = Describe("broadcast hub", func() {
	var (
		hub *Hub
		srv *httptest.Server
	)

	dial := func() *websocket.Conn {
		url := strings.Replace(srv.URL, "http", "ws", 1)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).To(BeNil())
		return conn
	}

	readEvent := func(conn *websocket.Conn) Event {
		var event Event
		Expect(conn.SetReadDeadline(time.Now().Add(2 * time.Second))).To(Succeed())
		Expect(conn.ReadJSON(&event)).To(Succeed())
		return event
	}

	BeforeEach(func() {
		hub = NewHub(16)
		upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			hub.Subscribe(conn).Run()
		}))
	})

	AfterEach(func() {
		srv.Close()
	})

	It("greets every new subscriber with a connection event", func() {
		conn := dial()
		defer conn.Close()

		event := readEvent(conn)
		Expect(event.Type).To(Equal(EventTypeStatus))
		Expect(event.Output).To(Equal("WebSocket connection established"))
		Expect(hub.Count()).To(Equal(1))
	})

	It("fans an emitted event out to every subscriber", func() {
		conns := []*websocket.Conn{dial(), dial(), dial()}
		defer func() {
			for _, conn := range conns {
				conn.Close()
			}
		}()
		for _, conn := range conns {
			readEvent(conn)
		}
		Expect(hub.Count()).To(Equal(3))

		hub.Emit("Writer Agent", "Writing", "Starting Writing task")

		for _, conn := range conns {
			event := readEvent(conn)
			Expect(event.Agent).To(Equal("Writer Agent"))
			Expect(event.Task).To(Equal("Writing"))
			Expect(event.Type).To(Equal(EventTypeStatus))
		}
	})

	It("keeps delivering after one subscriber disconnects", func() {
		first := dial()
		second := dial()
		third := dial()
		defer first.Close()
		defer third.Close()
		for _, conn := range []*websocket.Conn{first, second, third} {
			readEvent(conn)
		}

		Expect(second.Close()).To(Succeed())
		Eventually(hub.Count).WithTimeout(2 * time.Second).WithPolling(10 * time.Millisecond).Should(Equal(2))

		hub.Emit("System", "Completed", "done")
		Expect(readEvent(first).Output).To(Equal("done"))
		Expect(readEvent(third).Output).To(Equal("done"))
	})

	It("relays client frames to all subscribers and acknowledges the sender", func() {
		sender := dial()
		observer := dial()
		defer sender.Close()
		defer observer.Close()
		readEvent(sender)
		readEvent(observer)

		Expect(sender.WriteJSON(Event{
			Agent:  "Reviewer",
			Task:   "Comment",
			Output: "tighten the intro",
			Type:   EventTypeContent,
		})).To(Succeed())

		relayed := readEvent(sender)
		Expect(relayed.Output).To(Equal("tighten the intro"))
		Expect(relayed.Timestamp.IsZero()).To(BeFalse())
		Expect(readEvent(sender).Type).To(Equal(EventTypeAck))

		observed := readEvent(observer)
		Expect(observed.Output).To(Equal("tighten the intro"))
		Expect(observed.Type).To(Equal(EventTypeContent))
	})
})
