package projectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poassistant/internal/gateway/config"
	"poassistant/internal/types"
)

func sampleProject(id string) types.Project {
	return types.Project{
		ID:        id,
		Name:      "Project " + id,
		UserInput: "Build a login form",
		UICode:    `<form class="p-4"><input type="email"></form>`,
		JiraStories: []types.Epic{{
			EpicTitle: "Auth",
			Stories: []types.Story{{
				Title:              "Log in",
				UserStory:          "As a user, I want to log in so that I can see my data.",
				AcceptanceCriteria: []string{"Email is required", "Password is masked"},
				BddScenarios: []types.BddScenario{
					{Scenario: "Valid login", Given: "a registered user", When: "they submit", Then: "they see the dashboard"},
				},
			}},
		}},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func assertSameProjects(t *testing.T, want, got []types.Project) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].UserInput, got[i].UserInput)
		assert.Equal(t, want[i].UICode, got[i].UICode)
		assert.True(t, types.EqualEpics(want[i].JiraStories, got[i].JiraStories), "stories of %s", want[i].ID)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt), "createdAt of %s", want[i].ID)
	}
}

type memBackend struct {
	data    []byte
	readErr error
	failOn  int
	writes  int
}

func (m *memBackend) Read(context.Context) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.data == nil {
		return nil, ErrRecordNotFound
	}
	return m.data, nil
}

func (m *memBackend) Write(_ context.Context, data []byte) error {
	m.writes++
	if m.failOn > 0 && m.writes >= m.failOn {
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memBackend) Close() error { return nil }

func quietLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func TestAddPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	b := &memBackend{}
	s, err := Open(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.Add(ctx, sampleProject("a")))
	require.NoError(t, s.Add(ctx, sampleProject("b")))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, 2, b.writes)

	err = s.Add(ctx, sampleProject("a"))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 2, s.Len())
}

func TestReplaceKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, &memBackend{})
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(ctx, sampleProject(id)))
	}

	p := sampleProject("ignored")
	p.UICode = "<div>new</div>"
	require.NoError(t, s.Replace(ctx, "b", p))

	list := s.List()
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "<div>new</div>", list[1].UICode)

	err = s.Replace(ctx, "zzz", p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	b := &memBackend{}
	s, err := Open(ctx, b)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, sampleProject("a")))
	require.NoError(t, s.Add(ctx, sampleProject("b")))

	require.NoError(t, s.Remove(ctx, "a"))
	assert.False(t, s.Contains("a"))
	writes := b.writes

	require.NoError(t, s.Remove(ctx, "a"))
	assert.Equal(t, writes, b.writes, "removing an unknown id must not write")
}

func TestWriteFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	b := &memBackend{failOn: 2}
	log, _ := quietLogger()
	var outcomes []string
	s, err := Open(ctx, b, WithLogger(log), WithObserver(func(op string, err error) {
		outcomes = append(outcomes, op+":"+map[bool]string{true: "ok", false: "error"}[err == nil])
	}))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, sampleProject("a")))

	assert.Error(t, s.Add(ctx, sampleProject("b")))
	assert.Error(t, s.Replace(ctx, "a", sampleProject("x")))
	assert.Error(t, s.Remove(ctx, "a"))

	list := s.List()
	require.Len(t, list, 1)
	assertSameProjects(t, []types.Project{sampleProject("a")}, list)
	assert.Equal(t, []string{"add:ok", "add:error", "replace:error", "remove:error"}, outcomes)

	reopened, err := Open(ctx, &memBackend{data: b.data})
	require.NoError(t, err)
	assertSameProjects(t, list, reopened.List())
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, &memBackend{})
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, sampleProject("a")))

	list := s.List()
	list[0].JiraStories[0].EpicTitle = "mutated"
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Auth", got.JiraStories[0].EpicTitle)
}

func TestOpenCorruptRecordStartsEmpty(t *testing.T) {
	log, hook := quietLogger()
	s, err := Open(context.Background(), &memBackend{data: []byte(`{"not":"a list"`)}, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestOpenDropsEntriesWithoutUniqueID(t *testing.T) {
	log, _ := quietLogger()
	data := []byte(`[{"id":"a","name":"A"},{"id":"","name":"blank"},{"id":"a","name":"dup"},{"id":"b","name":"B"}]`)
	s, err := Open(context.Background(), &memBackend{data: data}, WithLogger(log))
	require.NoError(t, err)
	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "b", list[1].ID)
}

func TestOpenPropagatesBackendFailure(t *testing.T) {
	_, err := Open(context.Background(), &memBackend{readErr: errors.New("connection refused")})
	assert.ErrorContains(t, err, "connection refused")
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode([]types.Project{sampleProject("a")})
	require.NoError(t, err)
	s := string(data)
	for _, field := range []string{`"id"`, `"name"`, `"userInput"`, `"uiCode"`, `"jiraStories"`, `"createdAt": "2024-05-01T12:00:00Z"`, `"epicTitle"`, `"bddScenarios"`} {
		assert.Contains(t, s, field)
	}
	assert.Contains(t, s, `<form class=\"p-4\">`)

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func roundTrip(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, b)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, sampleProject("a")))
	require.NoError(t, s.Add(ctx, sampleProject("b")))
	updated := sampleProject("a")
	updated.UserInput = "Build a login form with SSO"
	require.NoError(t, s.Replace(ctx, "a", updated))

	reopened, err := Open(ctx, b)
	require.NoError(t, err)
	assertSameProjects(t, s.List(), reopened.List())
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "projects.json")
	b := NewFileBackend(path)

	_, err := b.Read(context.Background())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	roundTrip(t, b)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestFileBackendCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	log, _ := quietLogger()

	s, err := Open(context.Background(), NewFileBackend(path), WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestRedisBackendRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b := NewRedisBackend(client, "")
	_, err := b.Read(context.Background())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	roundTrip(t, b)
	assert.True(t, mr.Exists(defaultRedisKey))
}

func TestDialRedisViaConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	b, err := NewBackend(context.Background(), config.StoreConfig{Backend: "redis", RedisAddr: mr.Addr(), RedisKey: "k"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	roundTrip(t, b)
	assert.True(t, mr.Exists("k"))
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "projects.db")
	b, err := NewBackend(context.Background(), config.StoreConfig{Backend: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, err = b.Read(context.Background())
	assert.ErrorIs(t, err, ErrRecordNotFound)
	roundTrip(t, b)
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend(context.Background(), config.StoreConfig{Backend: "mongo"})
	assert.Error(t, err)
}

func TestRebindPostgres(t *testing.T) {
	b := &SQLBackend{driver: DriverPostgres}
	assert.Equal(t, "VALUES ($1, $2)", b.rebind("VALUES (?, ?)"))
	b.driver = DriverSQLite
	assert.Equal(t, "VALUES (?, ?)", b.rebind("VALUES (?, ?)"))
}
