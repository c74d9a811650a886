package ws

type Hubs struct {
	Tools *ToolHub
	Users *UserHub
}

func NewHubs() *Hubs {
	return &Hubs{
		Tools: NewToolHub(),
		Users: NewUserHub(),
	}
}

// Run starts every hub loop.
func (h *Hubs) Run() {
	if h == nil {
		return
	}
	go h.Tools.Run()
	go h.Users.Run()
}
