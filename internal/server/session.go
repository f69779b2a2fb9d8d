package server

// Session 抽象一个观战端会话，方便测试用假连接替换
type Session interface {
	ID() int64
	Send(data []byte) error
	Close()
	CloseWithoutNotify()
	SetClientID(id int64)
}
