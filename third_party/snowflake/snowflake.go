package snowflake

import (
	"errors"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

var node *sf.Node

// Init 初始化 snowflake 节点，startTime 格式 2006-01-02
func Init(startTime string, machineID int64) (err error) {
	var st time.Time
	st, err = time.Parse("2006-01-02", startTime)
	if err != nil {
		return err
	}
	if st.After(time.Now()) {
		return errors.New("snowflake start time is in the future")
	}
	sf.Epoch = st.UnixNano() / 1000000
	n, err := sf.NewNode(machineID)
	if err != nil {
		return err
	}
	node = n
	return nil
}

// GenID 生成全局唯一ID
func GenID() int64 {
	return node.Generate().Int64()
}
