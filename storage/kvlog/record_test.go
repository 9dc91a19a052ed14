package kvlog

import (
	"bytes"
	"errors"
	"testing"
)

func TestRecord_RoundTrip(t *testing.T) {
	records := []Record{
		NewSetRecord("key", "value"),
		NewSetRecord("key", ""),
		NewSetRecord("", "value"),
		NewSetRecord("带换行的值", "line1\nline2\n"),
		NewSetRecord("k\"quote\"", "v\\backslash"),
		NewRemoveRecord("key"),
		{Type: RecordGet, Key: "key"},
	}

	for _, rec := range records {
		data, err := rec.Encode()
		if err != nil {
			t.Fatalf("Encode 失败: %v", err)
		}

		got, err := DecodeRecord(data)
		if err != nil {
			t.Fatalf("Decode 失败: %v", err)
		}
		if got != rec {
			t.Errorf("往返不一致: got %+v, want %+v", got, rec)
		}
	}
}

func TestRecord_EncodeSingleLine(t *testing.T) {
	// 编码结果必须恰好一行：有且仅有结尾一个换行符
	rec := NewSetRecord("key", "value\nwith\nnewlines")
	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode 失败: %v", err)
	}

	if data[len(data)-1] != '\n' {
		t.Error("编码结果缺少结尾换行符")
	}
	if bytes.Count(data, []byte{'\n'}) != 1 {
		t.Errorf("载荷中的换行符未被转义: %q", data)
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	cases := []struct {
		name string
		line []byte
	}{
		{"空输入", []byte("")},
		{"截断的记录", []byte(`{"type":"set","key":"a","val`)},
		{"非 JSON", []byte("not json at all\n")},
		{"未知类型", []byte(`{"type":"upsert","key":"a"}` + "\n")},
		{"行尾多余内容", []byte(`{"type":"set","key":"a"}{"x":1}` + "\n")},
	}

	for _, tc := range cases {
		_, err := DecodeRecord(tc.line)
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("%s: 期望 ErrInvalidRecord, 得到: %v", tc.name, err)
		}
	}
}
