package notify

import (
	"slices"
	"sync"
	"testing"
)

// testConn returns an open connection with no socket attached. Only the send
// queue is usable, which is all the Registry and Dispatcher touch.
func testConn(t *testing.T, reg *Registry, buf int) *Conn {
	t.Helper()
	c := newConn(nil, "test", buf, func(c *Conn) { reg.Remove(c) })
	reg.Add(c)
	if !c.open() {
		t.Fatal("open: connection was not connecting")
	}
	return c
}

func collect(seq func(func(*Conn) bool)) []*Conn {
	var out []*Conn
	for c := range seq {
		out = append(out, c)
	}
	return out
}

func TestRegistry_AddStartsUnregistered(t *testing.T) {
	reg := NewRegistry()
	c := testConn(t, reg, 1)

	if n := reg.Len(); n != 1 {
		t.Errorf("Len: got %d, want 1", n)
	}
	if _, ok := reg.Identity(c); ok {
		t.Error("Identity: new connection reported as registered")
	}
	if got := collect(reg.All()); len(got) != 1 || got[0] != c {
		t.Errorf("All: got %v, want [c]", got)
	}
}

func TestRegistry_ReRegistrationLastWins(t *testing.T) {
	reg := NewRegistry()
	c := testConn(t, reg, 1)

	reg.SetIdentity(c, Identity{UserID: "1", Role: "USER"})
	reg.SetIdentity(c, Identity{UserID: "2", Role: "ADMIN"})

	id, ok := reg.Identity(c)
	if !ok {
		t.Fatal("Identity: not registered")
	}
	if id.UserID != "2" || id.Role != "ADMIN" {
		t.Errorf("Identity: got %+v, want {2 ADMIN}", id)
	}
	if got := collect(reg.MatchingUsers([]string{"1"})); len(got) != 0 {
		t.Errorf("MatchingUsers(1): got %d conns, want 0", len(got))
	}
	if got := collect(reg.MatchingRoles([]string{"USER"})); len(got) != 0 {
		t.Errorf("MatchingRoles(USER): got %d conns, want 0", len(got))
	}
	if got := collect(reg.MatchingUsers([]string{"2"})); len(got) != 1 {
		t.Errorf("MatchingUsers(2): got %d conns, want 1", len(got))
	}
}

func TestRegistry_SetIdentityAbsentIsIgnored(t *testing.T) {
	reg := NewRegistry()
	stray := newConn(nil, "test", 1, nil)

	if reg.SetIdentity(stray, Identity{UserID: "1"}) {
		t.Error("SetIdentity: got true for absent connection")
	}
	if n := reg.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := testConn(t, reg, 1)

	if !reg.Remove(c) {
		t.Error("first Remove: got false, want true")
	}
	if reg.Remove(c) {
		t.Error("second Remove: got true, want false")
	}
	if n := reg.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestRegistry_EmptyIdentityNeverMatches(t *testing.T) {
	reg := NewRegistry()
	c := testConn(t, reg, 1)
	reg.SetIdentity(c, Identity{})

	if got := collect(reg.MatchingUsers([]string{""})); len(got) != 0 {
		t.Errorf("MatchingUsers(\"\"): got %d conns, want 0", len(got))
	}
	if got := collect(reg.MatchingRoles([]string{""})); len(got) != 0 {
		t.Errorf("MatchingRoles(\"\"): got %d conns, want 0", len(got))
	}
	if got := collect(reg.All()); len(got) != 1 {
		t.Errorf("All: got %d conns, want 1", len(got))
	}
}

func TestRegistry_SequenceIsRestartable(t *testing.T) {
	reg := NewRegistry()
	a := testConn(t, reg, 1)
	reg.SetIdentity(a, Identity{UserID: "1", Role: "USER"})

	seq := reg.MatchingRoles([]string{"USER"})
	if got := collect(seq); len(got) != 1 {
		t.Fatalf("first pass: got %d conns, want 1", len(got))
	}

	b := testConn(t, reg, 1)
	reg.SetIdentity(b, Identity{UserID: "2", Role: "USER"})

	got := collect(seq)
	if len(got) != 2 {
		t.Fatalf("second pass: got %d conns, want 2", len(got))
	}
	if !slices.Contains(got, a) || !slices.Contains(got, b) {
		t.Error("second pass: missing a connection")
	}
}

func TestRegistry_EarlyBreak(t *testing.T) {
	reg := NewRegistry()
	for range 5 {
		testConn(t, reg, 1)
	}
	n := 0
	for range reg.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterations: got %d, want 2", n)
	}
}

func TestRegistry_YieldMayCallBack(t *testing.T) {
	reg := NewRegistry()
	for range 3 {
		testConn(t, reg, 1)
	}
	// Removing while ranging must not deadlock.
	for c := range reg.All() {
		reg.Remove(c)
	}
	if n := reg.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestRegistry_Stats(t *testing.T) {
	reg := NewRegistry()
	a := testConn(t, reg, 1)
	b := testConn(t, reg, 1)
	c := testConn(t, reg, 1)
	testConn(t, reg, 1)
	reg.SetIdentity(a, Identity{UserID: "1", Role: "USER"})
	reg.SetIdentity(b, Identity{UserID: "2", Role: "USER"})
	reg.SetIdentity(c, Identity{UserID: "3", Role: "ADMIN"})

	st := reg.Stats()
	if st.Total != 4 {
		t.Errorf("Total: got %d, want 4", st.Total)
	}
	if st.Registered != 3 {
		t.Errorf("Registered: got %d, want 3", st.Registered)
	}
	if st.Roles["USER"] != 2 || st.Roles["ADMIN"] != 1 {
		t.Errorf("Roles: got %v, want USER=2 ADMIN=1", st.Roles)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newConn(nil, "test", 1, nil)
			reg.Add(c)
			reg.SetIdentity(c, Identity{UserID: "u", Role: "USER"})
			for range reg.MatchingRoles([]string{"USER"}) {
			}
			if i%2 == 0 {
				reg.Remove(c)
			}
		}()
	}
	wg.Wait()
	if n := reg.Len(); n != 10 {
		t.Errorf("Len: got %d, want 10", n)
	}
}

func TestConn_CloseRunsHookOnce(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	var mu sync.Mutex
	c := newConn(nil, "test", 1, func(c *Conn) {
		mu.Lock()
		calls++
		mu.Unlock()
		reg.Remove(c)
	})
	reg.Add(c)
	c.open()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("onClose calls: got %d, want 1", calls)
	}
	if s := c.State(); s != StateClosed {
		t.Errorf("State: got %v, want closed", s)
	}
	if reg.Len() != 0 {
		t.Error("Registry still holds closed connection")
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done: channel not closed")
	}
}

func TestConn_StateTransitions(t *testing.T) {
	c := newConn(nil, "test", 1, nil)
	if s := c.State(); s != StateConnecting {
		t.Errorf("initial: got %v, want connecting", s)
	}
	if !c.open() {
		t.Error("open from connecting: got false")
	}
	if c.open() {
		t.Error("open twice: got true")
	}
	c.Close()
	if c.open() {
		t.Error("open after close: got true")
	}
	if s := c.State(); s != StateClosed {
		t.Errorf("final: got %v, want closed", s)
	}
}

func TestConn_EnqueueRequiresOpen(t *testing.T) {
	c := newConn(nil, "test", 1, nil)
	if c.enqueue([]byte("x")) {
		t.Error("enqueue while connecting: got true")
	}
	c.open()
	if !c.enqueue([]byte("x")) {
		t.Error("enqueue while open: got false")
	}
	if c.enqueue([]byte("y")) {
		t.Error("enqueue on full queue: got true")
	}
	c.Close()
	<-c.send
	if c.enqueue([]byte("z")) {
		t.Error("enqueue after close: got true")
	}
}
