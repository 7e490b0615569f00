package llm

import "context"

// Request 描述一次 /ai 提问。
type Request struct {
	System   string
	Question string
}

// Response 是模型返回的纯文本回复。
type Response struct {
	Reply string
	Model string
}

// Client 定义了调用大模型的统一接口。
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// DefaultSystemPrompt frames the assistant for SLH holders.
const DefaultSystemPrompt = "You are the assistant of the SLH token community bot on BNB Smart Chain. " +
	"Answer briefly and in the language of the question. " +
	"Never ask for private keys or seed phrases, and never give investment advice."
