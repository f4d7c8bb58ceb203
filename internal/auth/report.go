package auth

import (
	"fmt"
	"io"

	"github.com/crossbario/crossbar-shell/internal/render"
	"github.com/crossbario/crossbar-shell/internal/session"
	"github.com/crossbario/crossbar-shell/internal/version"
)

// CodeHint tells the user how to submit the emailed activation code.
const CodeHint = `Run "cbsh auth --code <CODE>" with the code from the email.`

// NewCodeHint tells the user how to ask for another activation code.
const NewCodeHint = `Tip: you can request sending of a new code with "cbsh auth --new-code"`

// Report writes the user-facing account of an outcome.
func Report(w io.Writer, o *Outcome) {
	if o.Rejection == nil {
		if o.Session != nil {
			Welcome(w, o.Session.Details)
		}
		return
	}

	r := o.Rejection
	switch r.Reason {
	case ReasonNewUserCodeSent:
		fmt.Fprintf(w, "\nThanks for registering! %s\n", r.Message)
		fmt.Fprintln(w, render.StatusOK.Render("Please check your inbox."))
		fmt.Fprintln(w)
	case ReasonRegisteredUserCodeSent:
		fmt.Fprintf(w, "\nWelcome back! %s\n", r.Message)
		fmt.Fprintln(w, render.StatusOK.Render("Please check your inbox."))
		fmt.Fprintln(w)
	case ReasonPendingActivation:
		fmt.Fprintln(w)
		fmt.Fprintln(w, render.StatusOK.Render(r.Message))
		fmt.Fprintln(w)
		fmt.Fprintln(w, CodeHint)
		fmt.Fprintln(w, NewCodeHint)
		fmt.Fprintln(w)
	case ReasonNoPendingActivation, ReasonEmailFailure, ReasonInvalidActivationCode:
		fmt.Fprintln(w)
		fmt.Fprintln(w, render.StatusError.Render(fmt.Sprintf("%s [%s]", r.Message, r.URI)))
		fmt.Fprintln(w)
	default:
		fmt.Fprintln(w, render.StatusError.Render(fmt.Sprintf("Internal error: unprocessed error type %s:", r.Code)))
		fmt.Fprintln(w, render.StatusError.Render(r.Message))
	}
}

// Welcome writes the shell banner and the connection summary.
func Welcome(w io.Writer, d session.Details) {
	fmt.Fprintf(w, "\nWelcome to %s\n\n", render.Brand.Render(version.Get().Banner()))
	fmt.Fprintln(w, "Press Ctrl-C to cancel the current command, and Ctrl-D to exit the shell.")
	fmt.Fprintln(w, `Type "help" to get help.`)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "    Connection:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "        url         : %s\n", d.URL)
	fmt.Fprintf(w, "        authmethod  : %s\n", d.AuthMethod)
	fmt.Fprintf(w, "        realm       : %s\n", render.Brand.Render(d.Realm))
	fmt.Fprintf(w, "        authid      : %s\n", render.Brand.Render(d.AuthID))
	fmt.Fprintf(w, "        authrole    : %s\n", render.Brand.Render(d.AuthRole))
	fmt.Fprintf(w, "        session     : %d\n", d.SessionID)
	fmt.Fprintln(w)
}
