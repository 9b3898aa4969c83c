package identity

import (
    "strings"
    "unicode/utf8"
)

// Status is the lifecycle state of a registered connection.
type Status string

const (
    Idle    Status = "idle"
    Queued  Status = "queued"
    Playing Status = "playing"
)

// MaxNameRunes bounds display names.
const MaxNameRunes = 32

// Identity binds one connection to a unique display name.
type Identity struct {
    ConnID    string
    Name      string
    Status    Status
    SessionID string
}

var (
    ErrInvalidName       = errf("invalid display name")
    ErrNameTaken         = errf("display name already in use")
    ErrAlreadyRegistered = errf("connection already registered")
)

type staticErr string
func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

// Directory maps connections to identities and names to connections.
// It is not safe for concurrent use.
type Directory struct {
    byConn map[string]*Identity
    byName map[string]string
}

func NewDirectory() *Directory {
    return &Directory{byConn: map[string]*Identity{}, byName: map[string]string{}}
}

// NormalizeName trims the name and validates its length.
func NormalizeName(name string) (string, error) {
    n := strings.TrimSpace(name)
    if n == "" || utf8.RuneCountInString(n) > MaxNameRunes { return "", ErrInvalidName }
    return n, nil
}

// Register binds conn to name. Names compare exactly after trimming.
func (d *Directory) Register(conn, name string) (Identity, error) {
    if strings.TrimSpace(conn) == "" { return Identity{}, ErrInvalidName }
    if _, ok := d.byConn[conn]; ok { return Identity{}, ErrAlreadyRegistered }
    n, err := NormalizeName(name)
    if err != nil { return Identity{}, err }
    if _, taken := d.byName[n]; taken { return Identity{}, ErrNameTaken }
    id := &Identity{ConnID: conn, Name: n, Status: Idle}
    d.byConn[conn] = id
    d.byName[n] = conn
    return *id, nil
}

// Unregister removes conn and frees its name. It returns the removed identity.
func (d *Directory) Unregister(conn string) (Identity, bool) {
    id, ok := d.byConn[conn]
    if !ok { return Identity{}, false }
    delete(d.byConn, conn)
    if d.byName[id.Name] == conn {
        delete(d.byName, id.Name)
    }
    return *id, true
}

// SetStatus updates status and session binding. Absent connections are ignored.
func (d *Directory) SetStatus(conn string, st Status, sessionID string) {
    id, ok := d.byConn[conn]
    if !ok { return }
    id.Status = st
    if st == Playing {
        id.SessionID = sessionID
    } else {
        id.SessionID = ""
    }
}

func (d *Directory) Get(conn string) (Identity, bool) {
    id, ok := d.byConn[conn]
    if !ok { return Identity{}, false }
    return *id, true
}

func (d *Directory) ByName(name string) (Identity, bool) {
    conn, ok := d.byName[strings.TrimSpace(name)]
    if !ok { return Identity{}, false }
    return d.Get(conn)
}

func (d *Directory) Count() int { return len(d.byConn) }
