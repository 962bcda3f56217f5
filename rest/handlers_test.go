package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomchat/domain"
	"roomchat/repositories"
	"roomchat/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	err      error
	identity domain.Identity
}

func (v stubVerifier) Verify(string) (domain.Identity, error) {
	if v.err != nil {
		return domain.Identity{}, v.err
	}
	return v.identity, nil
}

func newRestFixture(t *testing.T, verifier stubVerifier, rooms ...string) (*http.ServeMux, *repositories.MessageStore) {
	t.Helper()
	log := slog.Default()

	directory := repositories.NewRoomDirectory()
	for _, room := range rooms {
		directory.Create(room)
	}
	store := repositories.NewMessageStore(directory, log)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	conversations := repositories.NewConversationStore(db, log)

	service := services.NewChatService(directory, store, conversations)
	mux := NewHandler(log, service).Routes(NewMiddleware(log, verifier))
	return mux, store
}

func do(mux *http.ServeMux, method, target, token string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func Test_Get_Messages_Returns_Descending_Page(t *testing.T) {
	req := require.New(t)
	mux, store := newRestFixture(t, stubVerifier{}, "Room1")
	for _, ts := range []int64{0, 1, 2} {
		req.NoError(store.Append(domain.Message{Room: "Room1", From: "fakeuser", TimestampUTC: ts, Text: "hi"}))
	}

	w := do(mux, http.MethodGet, "/messages/Room1", "", "")
	req.Equal(http.StatusOK, w.Code)

	var messages []domain.Message
	req.NoError(json.Unmarshal(w.Body.Bytes(), &messages))
	req.Len(messages, 3)
	req.Equal(int64(2), messages[0].TimestampUTC)
	req.Equal(int64(0), messages[2].TimestampUTC)
}

func Test_Get_Messages_Honors_Limit_And_Offset(t *testing.T) {
	req := require.New(t)
	mux, store := newRestFixture(t, stubVerifier{}, "Room1")
	for _, ts := range []int64{0, 1, 2} {
		req.NoError(store.Append(domain.Message{Room: "Room1", From: "fakeuser", TimestampUTC: ts, Text: "hi"}))
	}

	w := do(mux, http.MethodGet, "/messages/Room1?offset=1&limit=1", "", "")
	req.Equal(http.StatusOK, w.Code)

	var messages []domain.Message
	req.NoError(json.Unmarshal(w.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal(int64(1), messages[0].TimestampUTC)
}

func Test_Get_Messages_Non_Integer_Params_Are_Server_Errors(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{}, "Room1")

	req.Equal(http.StatusInternalServerError, do(mux, http.MethodGet, "/messages/Room1?limit=abc", "", "").Code)
	req.Equal(http.StatusInternalServerError, do(mux, http.MethodGet, "/messages/Room1?offset=xyz", "", "").Code)
}

func Test_Get_Messages_Unknown_Room_Is_Empty_List(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{}, "Room1")

	w := do(mux, http.MethodGet, "/messages/nonexistentRoom", "", "")
	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`[]`, w.Body.String())
}

func Test_List_Rooms_Requires_Credential(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{err: fmt.Errorf("credential rejected")}, "Room1")

	req.Equal(http.StatusUnauthorized, do(mux, http.MethodGet, "/rooms", "", "").Code)
	req.Equal(http.StatusUnauthorized, do(mux, http.MethodGet, "/rooms", "bad-token", "").Code)
}

func Test_List_Rooms_Rejects_Wrong_Scheme(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{}, "Room1")

	r := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	r.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	req.Equal(http.StatusUnauthorized, w.Code)
}

func Test_List_Rooms_With_Valid_Credential(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}}, "Room1", "Room2")

	w := do(mux, http.MethodGet, "/rooms", "ok", "")
	req.Equal(http.StatusOK, w.Code)

	var rooms []string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &rooms))
	req.ElementsMatch([]string{"Room1", "Room2"}, rooms)
}

func Test_Conversation_Round_Trip(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}})

	w := do(mux, http.MethodPost, "/conversations/bob", "ok", `{"timestamp_utc":7,"text":"hi bob"}`)
	req.Equal(http.StatusCreated, w.Code)

	// Same composite key again is a conflict on the synchronous write API.
	w = do(mux, http.MethodPost, "/conversations/bob", "ok", `{"timestamp_utc":7,"text":"hi again"}`)
	req.Equal(http.StatusConflict, w.Code)

	w = do(mux, http.MethodGet, "/conversations/bob", "ok", "")
	req.Equal(http.StatusOK, w.Code)

	var messages []domain.Message
	req.NoError(json.Unmarshal(w.Body.Bytes(), &messages))
	req.Len(messages, 1)
	req.Equal("hi bob", messages[0].Text)
	req.Equal("alice:bob", messages[0].Room)
}

func Test_Conversation_Rejects_Bad_Cursor(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}})

	req.Equal(http.StatusBadRequest, do(mux, http.MethodGet, "/conversations/bob?lastReceivedTimestamp=abc", "ok", "").Code)
	req.Equal(http.StatusBadRequest, do(mux, http.MethodGet, "/conversations/bob?lastReceivedTimestamp=-5", "ok", "").Code)
}

func Test_Conversation_Rejects_Bad_Body(t *testing.T) {
	req := require.New(t)
	mux, _ := newRestFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}})

	req.Equal(http.StatusBadRequest, do(mux, http.MethodPost, "/conversations/bob", "ok", `not json`).Code)
	req.Equal(http.StatusBadRequest, do(mux, http.MethodPost, "/conversations/bob", "ok", `{"text":"no timestamp"}`).Code)
}
