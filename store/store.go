// Package store 提供 core.HashStore 的实现：Redis（生产）与内存（测试/本地）。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var s core.HashStore = store.NewMemoryStore()
package store
