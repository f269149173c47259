package emailsvc

import "github.com/trezcool/shule/core"

// NewMockService sends synchronously and silently; tests inspect SentMessages.
func NewMockService() core.EmailService {
	return &consoleService{
		defaultFromEmail: core.Conf.DefaultFromEmail(),
		subjPrefix:       "[" + core.Conf.AppName + "] ",
		disableOutput:    true,
		synchronous:      true,
	}
}

// ClearSentMessages resets the sent-mail log between tests.
func ClearSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}
