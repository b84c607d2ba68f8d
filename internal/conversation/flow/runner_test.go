package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekhealth/seekbot/internal/ai"
	"github.com/seekhealth/seekbot/internal/conversation"
	"github.com/seekhealth/seekbot/internal/prompt"
	"github.com/seekhealth/seekbot/internal/users"
)

const testBaseURL = "https://bot.example.com"

type fakeResolver struct {
	byPhone map[string]*users.User
	err     error
}

func (f *fakeResolver) ByPhone(_ context.Context, phone string) (*users.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byPhone[phone], nil
}

type fakeStore struct {
	tokens   map[string]string
	appended []conversation.AppendInput
	history  map[string][]conversation.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:  map[string]string{},
		history: map[string][]conversation.Message{},
	}
}

func (f *fakeStore) EnsureToken(_ context.Context, userID string) (string, bool, error) {
	if token, ok := f.tokens[userID]; ok {
		return token, false, nil
	}
	token := fmt.Sprintf("token-%s", userID)
	f.tokens[userID] = token
	return token, true, nil
}

func (f *fakeStore) RecentHistory(_ context.Context, userID string, limit int) ([]conversation.Message, error) {
	msgs := f.history[userID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeStore) Append(_ context.Context, input conversation.AppendInput) (conversation.Message, error) {
	f.appended = append(f.appended, input)
	msg := conversation.Message{
		UserID:      input.UserID,
		PhoneNumber: input.PhoneNumber,
		Token:       input.Token,
		Role:        input.Role,
		Content:     input.Content,
		CreatedAt:   time.Now(),
	}
	f.history[input.UserID] = append(f.history[input.UserID], msg)
	return msg, nil
}

type fakeResponder struct {
	answer     string
	err        error
	prompts    []string
	imageCalls int
	lastImage  []byte
	lastMime   string
}

func (f *fakeResponder) Ask(_ context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeResponder) AskWithImage(_ context.Context, p string, image []byte, mime string) (string, error) {
	f.imageCalls++
	f.prompts = append(f.prompts, p)
	f.lastImage = image
	f.lastMime = mime
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeRelay struct {
	data      []byte
	mime      string
	hosted    string
	fetchErr  error
	uploadErr error
	fetches   int
}

func (f *fakeRelay) FetchImage(_ context.Context, _ string) ([]byte, string, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	return f.data, f.mime, nil
}

func (f *fakeRelay) UploadBytes(_ context.Context, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.hosted, nil
}

func newRunner(resolver *fakeResolver, store *fakeStore, responder *fakeResponder, relay *fakeRelay) *Runner {
	return NewRunner(nil, resolver, store, prompt.NewComposer("https://seekhealth.app"), responder, relay, testBaseURL, 5)
}

func TestHandleTextAnonymousSender(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	responder := &fakeResponder{answer: "Ibuprofen is a pain reliever."}
	runner := newRunner(&fakeResolver{}, store, responder, &fakeRelay{})

	reply, err := runner.HandleText(context.Background(), "+100", "what is ibuprofen")
	require.NoError(t, err)

	assert.Equal(t, "Ibuprofen is a pain reliever.", reply.Answer)
	assert.False(t, reply.IsNewUser)
	assert.Empty(t, reply.ChatLink)
	// No token minted, no rows persisted for the anonymous flow.
	assert.Empty(t, store.tokens)
	assert.Empty(t, store.appended)
	// AI called exactly once, on the anonymous prompt branch.
	require.Len(t, responder.prompts, 1)
	assert.NotContains(t, responder.prompts[0], "HEALTH PROFILE")
}

func TestHandleTextFirstContactMintsTokenAndChatLink(t *testing.T) {
	t.Parallel()

	user := &users.User{ID: "u-200", PhoneNumber: "+200", FirstName: "Ada"}
	store := newFakeStore()
	responder := &fakeResponder{answer: "Hello Ada!"}
	runner := newRunner(&fakeResolver{byPhone: map[string]*users.User{"+200": user}}, store, responder, &fakeRelay{})

	reply, err := runner.HandleText(context.Background(), "+200", "hi")
	require.NoError(t, err)

	assert.True(t, reply.IsNewUser)
	assert.Equal(t, testBaseURL+"/chat/token-u-200", reply.ChatLink)
	// Two rows persisted (user, bot) sharing the new token.
	require.Len(t, store.appended, 2)
	assert.Equal(t, conversation.RoleUser, store.appended[0].Role)
	assert.Equal(t, conversation.RoleBot, store.appended[1].Role)
	assert.Equal(t, store.appended[0].Token, store.appended[1].Token)
	assert.Equal(t, "hi", store.appended[0].Content)
	assert.Equal(t, "Hello Ada!", store.appended[1].Content)
}

func TestHandleTextReturningUserSeesPriorTurns(t *testing.T) {
	t.Parallel()

	user := &users.User{ID: "u-200", PhoneNumber: "+200", FirstName: "Ada"}
	store := newFakeStore()
	responder := &fakeResponder{answer: "answer"}
	runner := newRunner(&fakeResolver{byPhone: map[string]*users.User{"+200": user}}, store, responder, &fakeRelay{})

	_, err := runner.HandleText(context.Background(), "+200", "hi")
	require.NoError(t, err)

	reply, err := runner.HandleText(context.Background(), "+200", "second message")
	require.NoError(t, err)

	assert.False(t, reply.IsNewUser)
	assert.Empty(t, reply.ChatLink)
	// The second prompt includes both turns of the first exchange.
	require.Len(t, responder.prompts, 2)
	assert.Contains(t, responder.prompts[1], "User: hi")
	assert.Contains(t, responder.prompts[1], "Seek: answer")
}

func TestHandleTextRegistryTimeoutDegradesToAnonymous(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	responder := &fakeResponder{answer: "generic answer"}
	runner := newRunner(&fakeResolver{err: context.DeadlineExceeded}, store, responder, &fakeRelay{})

	reply, err := runner.HandleText(context.Background(), "+300", "question")
	require.NoError(t, err)
	assert.Equal(t, "generic answer", reply.Answer)
	assert.Empty(t, store.appended)
}

func TestHandleTextAIFailureLeavesNoBotTurn(t *testing.T) {
	t.Parallel()

	user := &users.User{ID: "u-200", PhoneNumber: "+200"}
	store := newFakeStore()
	responder := &fakeResponder{err: fmt.Errorf("%w: backend timeout", ai.ErrService)}
	runner := newRunner(&fakeResolver{byPhone: map[string]*users.User{"+200": user}}, store, responder, &fakeRelay{})

	_, err := runner.HandleText(context.Background(), "+200", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrService)
	// The user turn precedes the AI call; the bot turn is never written.
	require.Len(t, store.appended, 1)
	assert.Equal(t, conversation.RoleUser, store.appended[0].Role)
}

func TestHandleMediaAnalyzesWithoutStoreInteraction(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	responder := &fakeResponder{answer: "That looks like jollof rice."}
	relay := &fakeRelay{data: []byte("img"), mime: "image/jpeg", hosted: "https://cdn.example.com/x.jpg"}
	runner := newRunner(&fakeResolver{}, store, responder, relay)

	answer, err := runner.HandleMedia(context.Background(), "+200", "https://api.twilio.test/media/1")
	require.NoError(t, err)

	assert.Equal(t, "That looks like jollof rice.", answer)
	assert.Equal(t, 1, relay.fetches)
	assert.Equal(t, 1, responder.imageCalls)
	assert.Equal(t, []byte("img"), responder.lastImage)
	assert.Equal(t, "image/jpeg", responder.lastMime)
	assert.Empty(t, store.appended)
	assert.Empty(t, store.tokens)
}

func TestHandleMediaPropagatesRelayFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("fetch failed")
	relay := &fakeRelay{fetchErr: boom}
	responder := &fakeResponder{}
	runner := newRunner(&fakeResolver{}, newFakeStore(), responder, relay)

	_, err := runner.HandleMedia(context.Background(), "+200", "https://api.twilio.test/media/1")
	require.ErrorIs(t, err, boom)
	assert.Zero(t, responder.imageCalls)
}
