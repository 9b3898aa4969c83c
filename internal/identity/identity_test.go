package identity

import (
    "errors"
    "strings"
    "testing"
)

func TestRegisterUniqueName(t *testing.T) {
    d := NewDirectory()
    id, err := d.Register("c1", "  bob ")
    if err != nil { t.Fatalf("Register: %v", err) }
    if id.Name != "bob" || id.Status != Idle { t.Fatalf("unexpected identity: %+v", id) }

    if _, err := d.Register("c2", "bob"); !errors.Is(err, ErrNameTaken) {
        t.Fatalf("second bob: err=%v want ErrNameTaken", err)
    }
    if _, ok := d.Get("c2"); ok { t.Fatalf("failed registration must not create identity") }
    // case-sensitive comparison
    if _, err := d.Register("c3", "Bob"); err != nil { t.Fatalf("Bob should be distinct: %v", err) }
    if d.Count() != 2 { t.Fatalf("count=%d", d.Count()) }
}

func TestRegisterRejects(t *testing.T) {
    d := NewDirectory()
    for _, name := range []string{"", "   ", strings.Repeat("x", MaxNameRunes+1)} {
        if _, err := d.Register("c1", name); !errors.Is(err, ErrInvalidName) {
            t.Fatalf("Register(%q) err=%v", name, err)
        }
    }
    if _, err := d.Register("c1", "alice"); err != nil { t.Fatalf("Register: %v", err) }
    if _, err := d.Register("c1", "alice2"); !errors.Is(err, ErrAlreadyRegistered) {
        t.Fatalf("re-register err=%v", err)
    }
}

func TestUnregisterFreesName(t *testing.T) {
    d := NewDirectory()
    if _, err := d.Register("c1", "bob"); err != nil { t.Fatalf("Register: %v", err) }
    if _, ok := d.Unregister("c1"); !ok { t.Fatalf("Unregister reported absent") }
    if _, ok := d.Unregister("c1"); ok { t.Fatalf("double Unregister") }
    if _, err := d.Register("c2", "bob"); err != nil { t.Fatalf("name not freed: %v", err) }
    if id, ok := d.ByName("bob"); !ok || id.ConnID != "c2" { t.Fatalf("ByName: %+v %v", id, ok) }
}

func TestSetStatus(t *testing.T) {
    d := NewDirectory()
    d.SetStatus("ghost", Playing, "s1") // absent: no-op
    if _, err := d.Register("c1", "bob"); err != nil { t.Fatalf("Register: %v", err) }
    d.SetStatus("c1", Playing, "s1")
    if id, _ := d.Get("c1"); id.Status != Playing || id.SessionID != "s1" { t.Fatalf("got %+v", id) }
    d.SetStatus("c1", Idle, "s1")
    if id, _ := d.Get("c1"); id.Status != Idle || id.SessionID != "" { t.Fatalf("got %+v", id) }
}
