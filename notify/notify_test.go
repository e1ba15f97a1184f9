package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/databases/memdb"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
)

func TestEmailNotifier_SendsToResolvedRecipients(t *testing.T) {
	store := memdb.New()
	store.PutUser(models.User{ID: "client-1", Details: models.UserDetails{Name: "Kamal", Email: "kamal@example.com", UserType: models.UserTypeClient}})
	store.PutUser(models.User{ID: "client-2", Details: models.UserDetails{Name: "No Mail", UserType: models.UserTypeClient}})

	var sent []*mail.SGMailV3
	n := NewEmailNotifier("", "desk@example.com", identity.NewRegistry(store.Users()))
	n.send = func(msg *mail.SGMailV3) (int, string, error) {
		sent = append(sent, msg)
		return http.StatusAccepted, "", nil
	}

	n.Notify(context.Background(), Event{
		Type:       EventCaseFiled,
		CaseNumber: "CL2026-0003",
		Recipients: []Recipient{
			{UserID: "client-1", UserType: models.UserTypeClient},
			{UserID: "client-2", UserType: models.UserTypeClient},
			{UserID: "ghost", UserType: models.UserTypeClient},
		},
		Data: map[string]interface{}{"filingReference": "DC/42"},
	})

	require.Len(t, sent, 1)
	assert.Equal(t, "Case CL2026-0003 has been filed", sent[0].Subject)
	assert.Equal(t, "kamal@example.com", sent[0].Personalizations[0].To[0].Address)
}

func TestEmailNotifier_DisabledWithoutKey(t *testing.T) {
	n := NewEmailNotifier("", "desk@example.com", identity.NewRegistry(memdb.New().Users()))
	assert.Nil(t, n.send)
	n.Notify(context.Background(), Event{Type: EventCaseFiled, Recipients: []Recipient{{UserID: "x", UserType: models.UserTypeClient}}})
}

type recordingNotifier struct {
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) {
	r.events = append(r.events, e)
}

func TestMulti(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Multi{a, Nop{}, b}.Notify(context.Background(), Event{Type: EventHearingScheduled})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestHub_PushesToConnectedRecipient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := identity.WithCaller(r.Context(), identity.Caller{UserID: "client-1", UserType: models.UserTypeClient})
		hub.ServeWS(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify(context.Background(), Event{
		Type:       EventDocumentsRequested,
		CaseID:     "c1",
		Recipients: []Recipient{{UserID: "client-1"}, {UserID: "offline"}},
	})

	var msg struct {
		Event string `json:"event"`
		Data  Event  `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventDocumentsRequested, msg.Event)
	assert.Equal(t, "c1", msg.Data.CaseID)
}

func TestHub_RejectsAnonymous(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHub().ServeWS(rr, httptest.NewRequest(http.MethodGet, "/ws/cases", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
