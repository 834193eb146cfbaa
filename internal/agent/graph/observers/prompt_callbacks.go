package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/Chative-core-poc-v1/emily/pkg/logger"
)

// newPromptHandler logs rendered prompt sizes. Contents stay out of the log
// because they carry the full catalog context.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			ev := logx.Debug().Str("name", info.Name)
			if output != nil {
				size := 0
				for _, m := range output.Result {
					if m != nil {
						size += len(m.Content)
					}
				}
				ev = ev.Int("messages", len(output.Result)).Int("chars", size)
			}
			ev.Msg("prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("prompt render error")
			return ctx
		},
	}
}
