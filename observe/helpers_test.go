package observe

import "fmt"

// kindErr mimics an authentication error exposing Temporary().
type kindErr struct{ temporary bool }

func (e kindErr) Error() string   { return fmt.Sprintf("login failed (temporary=%t)", e.temporary) }
func (e kindErr) Temporary() bool { return e.temporary }
