package main

import (
	"fmt"
	"os"

	"github.com/forever-free1/DriftKV/storage/kvlog"
)

const usage = `DriftKV - 日志结构键值存储

用法:
  driftkv set <key> <value>   写入键值对
  driftkv get <key>           读取键的值
  driftkv rm <key>            删除键
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// 子命令返回错误，统一在此退出，保证 Store 的 defer Close 先执行
	switch os.Args[1] {
	case "set":
		if len(os.Args) != 4 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runSet(dir, os.Args[2], os.Args[3])
	case "get":
		if len(os.Args) != 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runGet(dir, os.Args[2])
	case "rm":
		if len(os.Args) != 3 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		err = runRemove(dir, os.Args[2])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSet(dir, key, value string) error {
	store, err := kvlog.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Set(key, value)
}

func runGet(dir, key string) error {
	store, err := kvlog.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	value, ok, err := store.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		// 约定：查不到键打印哨兵信息并正常退出
		fmt.Println("Key not found")
		return nil
	}
	fmt.Println(value)
	return nil
}

// 约定：删除不存在的键打印错误并以失败退出
func runRemove(dir, key string) error {
	store, err := kvlog.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Remove(key)
}
