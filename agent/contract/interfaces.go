package contract

import "context"

// Supervisor picks which worker handles the latest human message.
type Supervisor interface {
	Decide(ctx context.Context, req RouteRequest) (RouteDecision, error)
}

// Worker runs one conversational turn to a final answer.
type Worker interface {
	Run(ctx context.Context, req WorkerRequest) (WorkerResponse, error)
}

type Registry interface {
	Supervisor() Supervisor
	Worker(tag AgentTag) (Worker, error)
	Tags() []AgentTag
}

type ToolGateway interface {
	Execute(ctx context.Context, agent AgentTag, reqs []ToolRequest) ([]ToolResult, error)
}
